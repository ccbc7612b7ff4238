package validators

import "go.mongodb.org/mongo-driver/bson"

const (
	dayPattern  = `^\d{4}-\d{2}-\d{2}$`
	timePattern = `^([01]\d|2[0-3]):[0-5]\d$|^24:00$`
)

var ScheduleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"barber_id",
			"date",
			"working_hours",
			"slot_duration_min",
			"available_slots",
			"is_off_day",
			"version",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"barber_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  dayPattern,
			},

			"working_hours": bson.M{
				"bsonType": "object",
				"required": []string{"start", "end"},
				"properties": bson.M{
					"start": bson.M{"bsonType": "string", "pattern": timePattern},
					"end":   bson.M{"bsonType": "string", "pattern": timePattern},
				},
			},

			"slot_duration_min": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  240,
			},

			"break_times": bson.M{
				"bsonType": []string{"array", "null"},
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"start", "end"},
				},
			},

			"available_slots": bson.M{
				"bsonType": "array",
				"maxItems": 1440,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"time", "is_booked", "is_blocked"},
					"properties": bson.M{
						"time":        bson.M{"bsonType": "string", "pattern": timePattern},
						"is_booked":   bson.M{"bsonType": "bool"},
						"booking_ref": bson.M{"bsonType": "string"},
						"is_blocked":  bson.M{"bsonType": "bool"},
					},
				},
			},

			"is_off_day": bson.M{
				"bsonType": "bool",
			},

			"off_reason": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"absence_ref": bson.M{
				"bsonType": "string",
			},

			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
