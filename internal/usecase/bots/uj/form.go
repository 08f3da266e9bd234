package uj

import (
	"ufunda-orchestrator/internal/domain/entity"
	"ufunda-orchestrator/internal/usecase/bots/flow"
)

var uploadKinds = []string{"id_doc", "results", "residence_proof", "affidavit"}

type form struct {
	Username string
	Password string

	FirstName string
	LastName  string
	DOB       string
	IDNumber  string
	Email     string
	Mobile    string

	Programme string

	Address1   string
	Suburb     string
	City       string
	PostalCode string

	Uploads   map[string]string
	FeeWaiver bool
	Card      flow.Card
}

// bind checks everything the portal will insist on before a browser is opened.
// Profile creation needs email, id_number and mobile; a card is needed unless the fee is waived.
func bind(c entity.Context, fallback flow.Card) (form, error) {
	f := form{
		FirstName:  c.Get("first_name"),
		LastName:   c.Get("last_name"),
		DOB:        c.Get("dob"),
		IDNumber:   c.Get("id_number"),
		Email:      c.Get("email"),
		Mobile:     c.Get("mobile"),
		Programme:  c.Get("programme"),
		Address1:   c.FirstOf("address1", "address"),
		Suburb:     c.Get("suburb"),
		City:       c.Get("city"),
		PostalCode: c.Get("postal_code"),
		FeeWaiver:  c.Flag("fee_waiver"),
		Uploads:    make(map[string]string, len(uploadKinds)),
	}
	if f.Programme == "" && len(c.Programmes) > 0 {
		f.Programme = c.Programmes[0].Name
	}
	for _, kind := range uploadKinds {
		if p, ok := c.Upload(kind); ok {
			f.Uploads[kind] = p
		}
	}

	required := []string{"first_name", "last_name"}
	if c.Has("uj_username") && c.Has("uj_password") {
		f.Username = c.Get("uj_username")
		f.Password = c.Get("uj_password")
	} else {
		required = append(required, "email", "id_number", "mobile")
	}
	missing := c.Missing(required...)

	if !f.FeeWaiver {
		f.Card = flow.Card{
			Number: c.Get("card_number"),
			Name:   c.Get("card_name"),
			Expiry: c.Get("card_expiry"),
			CVV:    c.Get("card_cvv"),
		}.Or(fallback)
		missing = append(missing, f.Card.Missing(true)...)
	}

	if len(missing) > 0 {
		return form{}, &entity.MissingFieldError{Fields: missing}
	}
	return f, nil
}
