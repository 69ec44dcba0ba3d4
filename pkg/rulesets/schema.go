package rulesets

// registrySchema validates the shape of a ruleset file before any profile is
// decoded. Semantic rules (weight sums, band ordering) are checked afterwards
// by the scoring configuration itself.
const registrySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Scoring Ruleset Registry",
  "type": "object",
  "required": ["version", "profiles"],
  "properties": {
    "version": {
      "type": "integer",
      "minimum": 1
    },
    "profiles": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "$ref": "#/definitions/profile"
      }
    }
  },
  "definitions": {
    "profile": {
      "type": "object",
      "required": ["weights"],
      "properties": {
        "weights": {
          "type": "object",
          "required": ["tenure", "activity", "spending", "contract", "renewal", "social", "acquisition"],
          "properties": {
            "tenure":      { "$ref": "#/definitions/weight" },
            "activity":    { "$ref": "#/definitions/weight" },
            "spending":    { "$ref": "#/definitions/weight" },
            "contract":    { "$ref": "#/definitions/weight" },
            "renewal":     { "$ref": "#/definitions/weight" },
            "social":      { "$ref": "#/definitions/weight" },
            "acquisition": { "$ref": "#/definitions/weight" }
          }
        },
        "tenureBands":   { "$ref": "#/definitions/bands" },
        "activityBands": { "$ref": "#/definitions/bands" },
        "spendingBands": { "$ref": "#/definitions/bands" },
        "renewalBands":  { "$ref": "#/definitions/bands" }
      }
    },
    "weight": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    },
    "bands": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["upperBound", "score"],
        "properties": {
          "upperBound": { "type": "number" },
          "score": {
            "type": "integer",
            "minimum": 0,
            "maximum": 100
          }
        }
      }
    }
  }
}`
