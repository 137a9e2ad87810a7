package luahost

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is a package-level singleton. Creating a new validator on each
// call is expensive; reusing is recommended.
var validate = validator.New()

// DecodeInto decodes a script-produced value into a typed struct and runs
// struct-tag validation on the result. The value is round-tripped through
// JSON, so the target uses ordinary json tags plus validate tags:
//
//	type Verdict struct {
//	    Allowed bool   `json:"allowed"`
//	    Reason  string `json:"reason" validate:"required_unless=Allowed true"`
//	}
func DecodeInto(value any, target any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal script value: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode script value: %w", err)
	}
	if err := validate.Struct(target); err != nil {
		return fmt.Errorf("script value validation failed: %w", err)
	}
	return nil
}
