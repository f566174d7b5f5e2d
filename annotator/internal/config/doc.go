// Package config loads and watches the annotator configuration file.
//
// Top-level types:
//   - Config{LogLevel, Annotator}: full config tree parsed from YAML
//   - AnnotatorConfig: dataset, input, output, textfile, rules
//   - rules is a compute.Config: warning_column, error_column, holes_column,
//     poor_ratio, critical_ratio, workers
//
// Load(path) reads the YAML file, applies defaults (poor 10, critical 40,
// the standard flag column names, one worker), then validates required
// fields and enums.
//
// Watch(ctx, path, onChange) uses fsnotify on the file's directory and calls
// onChange with the newly parsed Config whenever the file is written or
// replaced. Watching the directory keeps the watch alive across the
// rename-over pattern used by atomic-save editors.
package config
