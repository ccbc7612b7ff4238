package validators

import "go.mongodb.org/mongo-driver/bson"

var AbsenceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"barber_id",
			"start_date",
			"end_date",
			"reason",
			"status",
			"created_by",
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

			"start_date": bson.M{
				"bsonType": "string",
				"pattern":  dayPattern,
			},

			"end_date": bson.M{
				"bsonType": "string",
				"pattern":  dayPattern,
			},

			"reason": bson.M{
				"enum": []string{"vacation", "sick_leave", "personal", "training", "family_emergency", "other"},
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"status": bson.M{
				"enum": []string{"pending", "approved", "rejected"},
			},

			"rejection_reason": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"affected_bookings": bson.M{
				"bsonType": []string{"array", "null"},
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"booking_ref", "original_date", "resolution_status"},
					"properties": bson.M{
						"resolution_status": bson.M{
							"enum": []string{"pending_reschedule", "reassigned", "rejected", "rescheduled", "failed"},
						},
					},
				},
			},

			"created_by": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
