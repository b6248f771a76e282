package validators

import "go.mongodb.org/mongo-driver/bson"

// References to other documents are stored as ObjectID hex strings.
var objectIDHex = bson.M{
	"bsonType": "string",
	"pattern":  "^[0-9a-fA-F]{24}$",
}

var numeric = []string{"int", "long", "double", "decimal"}
