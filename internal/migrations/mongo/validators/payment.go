package validators

import "go.mongodb.org/mongo-driver/bson"

// amountTypes accepts the string form written by the decimal codec as well as
// numbers inserted by the storefront.
var amountTypes = []string{"string", "int", "long", "double", "decimal"}

var PaymentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"order_id",
			"provider",
			"amount",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": []string{"string", "objectId"},
			},

			"order_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"user_id": bson.M{
				"bsonType": "string",
			},

			"provider": bson.M{
				"bsonType": "string",
				"enum":     []string{"toss", "kakao"},
			},

			"amount": bson.M{
				"bsonType": amountTypes,
			},

			"currency": bson.M{
				"bsonType": "string",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"READY",
					"IN_PROGRESS",
					"COMPLETED",
					"CANCELED",
					"FAILED",
					"VIRTUAL_ACCOUNT_ISSUED",
					"VIRTUAL_ACCOUNT_EXPIRED",
				},
			},

			"payment_key": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"tid": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"approved_at": bson.M{
				"bsonType": "date",
			},

			"last_webhook_at": bson.M{
				"bsonType": "date",
			},

			"status_history": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"status", "source", "at"},
					"properties": bson.M{
						"status":          bson.M{"bsonType": "string"},
						"provider_status": bson.M{"bsonType": "string"},
						"source":          bson.M{"bsonType": "string", "enum": []string{"webhook", "confirm"}},
						"at":              bson.M{"bsonType": "date"},
					},
				},
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
