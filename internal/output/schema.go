package output

// ReportSchema is the JSON Schema of the structured report written by
// Encode.
const ReportSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "otf2sum report",
  "type": "object",
  "required": ["archive", "clock", "events", "locations", "regions", "metrics", "timings"],
  "definitions": {
    "count": {"type": "integer", "minimum": 0},
    "names": {
      "type": "object",
      "required": ["unique", "names"],
      "properties": {
        "unique": {"$ref": "#/definitions/count"},
        "names": {"type": "array", "items": {"type": "string"}, "uniqueItems": true}
      }
    }
  },
  "properties": {
    "archive": {"type": "string"},
    "clock": {
      "type": "object",
      "required": ["timerResolution", "globalOffset", "traceLength", "realtimeTimestamp"],
      "properties": {
        "timerResolution": {"$ref": "#/definitions/count"},
        "globalOffset": {"$ref": "#/definitions/count"},
        "traceLength": {"$ref": "#/definitions/count"},
        "realtimeTimestamp": {"$ref": "#/definitions/count"}
      }
    },
    "events": {
      "type": "object",
      "required": ["total", "kinds"],
      "properties": {
        "total": {"$ref": "#/definitions/count"},
        "kinds": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["kind", "count"],
            "properties": {
              "kind": {"enum": ["Enter", "Leave", "Metric", "Unknown"]},
              "count": {"$ref": "#/definitions/count"}
            }
          }
        }
      }
    },
    "locations": {"$ref": "#/definitions/names"},
    "regions": {"$ref": "#/definitions/names"},
    "metrics": {
      "type": "object",
      "required": ["events", "unique", "names"],
      "properties": {
        "events": {"$ref": "#/definitions/count"},
        "unique": {"$ref": "#/definitions/count"},
        "names": {"type": "array", "items": {"type": "string"}, "uniqueItems": true}
      }
    },
    "programBegins": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["location", "time", "globalOffset"]
      }
    },
    "spread": {
      "type": "object",
      "required": ["min", "median", "max", "mean"]
    },
    "timings": {
      "type": "object",
      "required": ["phases"],
      "properties": {
        "phases": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name", "seconds"],
            "properties": {
              "name": {"type": "string"},
              "seconds": {"type": "number", "minimum": 0}
            }
          }
        }
      }
    }
  }
}`
