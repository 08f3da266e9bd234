package nsfas

import "ufunda-orchestrator/internal/domain/entity"

var uploadKinds = []string{"id_doc", "proof_income", "consent_form", "academic_record"}

type form struct {
	LoginEmail    string
	LoginPassword string

	FirstName  string
	LastName   string
	DOB        string
	IDNumber   string
	Email      string
	Mobile     string
	Address1   string
	City       string
	PostalCode string

	HouseholdSize   string
	HouseholdIncome string

	University    string
	Programme     string
	StudentNumber string

	Uploads map[string]string
	OTP     string
}

// bind requires identity and income always, and email plus mobile when a new NSFAS account
// has to be registered.
func bind(c entity.Context) (form, error) {
	f := form{
		FirstName:       c.Get("first_name"),
		LastName:        c.Get("last_name"),
		DOB:             c.Get("dob"),
		IDNumber:        c.Get("id_number"),
		Email:           c.Get("email"),
		Mobile:          c.Get("mobile"),
		Address1:        c.FirstOf("address1", "address"),
		City:            c.Get("city"),
		PostalCode:      c.Get("postal_code"),
		HouseholdSize:   c.Get("household_size"),
		HouseholdIncome: c.Get("household_income"),
		University:      c.Get("university"),
		Programme:       c.Get("programme"),
		StudentNumber:   c.Get("student_number"),
		OTP:             c.Get("otp"),
		Uploads:         make(map[string]string, len(uploadKinds)),
	}
	if f.Programme == "" && len(c.Programmes) > 0 {
		f.Programme = c.Programmes[0].Name
	}
	for _, kind := range uploadKinds {
		if p, ok := c.Upload(kind); ok {
			f.Uploads[kind] = p
		}
	}

	required := []string{"first_name", "last_name", "id_number", "household_income"}
	if c.Has("nsfas_email") && c.Has("nsfas_password") {
		f.LoginEmail = c.Get("nsfas_email")
		f.LoginPassword = c.Get("nsfas_password")
	} else {
		required = append(required, "email", "mobile")
	}

	if missing := c.Missing(required...); len(missing) > 0 {
		return form{}, &entity.MissingFieldError{Fields: missing}
	}
	return f, nil
}
