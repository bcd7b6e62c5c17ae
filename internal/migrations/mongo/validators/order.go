package validators

import "go.mongodb.org/mongo-driver/bson"

var OrderValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": []string{"string", "objectId"},
			},

			"user_id": bson.M{
				"bsonType": "string",
			},

			"total_amount": bson.M{
				"bsonType": amountTypes,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"PAYMENT_PENDING",
					"PAYMENT_COMPLETED",
					"PAYMENT_CANCELED",
					"PAYMENT_FAILED",
					"AWAITING_DEPOSIT",
					"PAYMENT_EXPIRED",
				},
			},

			"payment_id": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
