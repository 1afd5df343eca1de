package pipeline

// Transaction is the canonical record persisted for a single financial
// transaction. This is the shape trusted callers submit on the structured
// insert path; bulk CSV ingestion produces equivalent documents through the
// normalizer instead.
//
// step, customer, amount and fraud are required; the remaining fields are
// optional and omitted from the stored document when absent.
type Transaction struct {
	Step        int     `json:"step" bson:"step"`
	Customer    string  `json:"customer" bson:"customer"`
	Age         *string `json:"age,omitempty" bson:"age,omitempty"`
	Gender      *string `json:"gender,omitempty" bson:"gender,omitempty"`
	ZipcodeOri  *string `json:"zipcodeori,omitempty" bson:"zipcodeori,omitempty"`
	Merchant    *string `json:"merchant,omitempty" bson:"merchant,omitempty"`
	ZipMerchant *string `json:"zipmerchant,omitempty" bson:"zipmerchant,omitempty"`
	Category    *string `json:"category,omitempty" bson:"category,omitempty"`
	Amount      float64 `json:"amount" bson:"amount"`
	Fraud       int     `json:"fraud" bson:"fraud"`
}
