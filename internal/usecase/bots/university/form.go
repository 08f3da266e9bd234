package university

import (
	"strings"

	"ufunda-orchestrator/internal/domain/entity"
	"ufunda-orchestrator/internal/usecase/bots/flow"
)

var personalKeys = []string{"first_name", "last_name", "id_number", "phone", "address"}

type pair struct {
	key   string
	value string
}

type form struct {
	Email         string
	Personal      []pair
	Academic      []pair
	Programmes    []entity.Programme
	Documents     []pair
	PaymentMethod string
	Card          flow.Card
}

func bind(c entity.Context, card flow.Card) (form, error) {
	if missing := c.Missing("email", "first_name", "last_name"); len(missing) > 0 {
		return form{}, &entity.MissingFieldError{Fields: missing}
	}

	f := form{
		Email:         c.Get("email"),
		Programmes:    append([]entity.Programme(nil), c.Programmes...),
		PaymentMethod: strings.ToLower(c.Get("payment_method")),
		Card:          card,
	}
	if f.PaymentMethod == "" {
		f.PaymentMethod = "card"
	}

	for _, key := range personalKeys {
		value := c.Get(key)
		if key == "phone" {
			value = c.FirstOf("phone", "mobile")
		}
		if value != "" {
			f.Personal = append(f.Personal, pair{key, value})
		}
	}
	for _, key := range c.AcademicKeys() {
		f.Academic = append(f.Academic, pair{key, c.Academic[key]})
	}
	for _, kind := range c.UploadKinds() {
		p, _ := c.Upload(kind)
		f.Documents = append(f.Documents, pair{kind, p})
	}
	return f, nil
}
