package api

import "github.com/go-playground/validator/v10"

// validate is the shared validator instance. Handlers validate decoded
// request structs against their tags and translate any failure into the
// endpoint's fixed required-fields message.
var validate = validator.New(validator.WithRequiredStructEnabled())
