// Package convert provides the builtin converter capabilities wired
// into the converter graph at startup.
//
// Converters:
//   - csv-to-json: text/csv -> application/json
//   - json-to-yaml / yaml-to-json: application/json <-> application/x-yaml
//   - llm-summarizer (optional, see the llm subpackage)
package convert
