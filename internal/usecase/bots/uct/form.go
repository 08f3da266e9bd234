package uct

import "ufunda-orchestrator/internal/domain/entity"

type document struct {
	field string
	path  string
}

type form struct {
	Username  string
	Password  string
	Details   map[string]string
	Programme string
	Documents []document
}

func bind(c entity.Context, cfg Config) (form, error) {
	if missing := c.Missing("first_name", "last_name", "email"); len(missing) > 0 {
		return form{}, &entity.MissingFieldError{Fields: missing}
	}

	f := form{
		Username:  c.Get("uct_username"),
		Password:  c.Get("uct_password"),
		Programme: c.FirstOf("program", "programme"),
		Details: map[string]string{
			"first_name": c.Get("first_name"),
			"last_name":  c.Get("last_name"),
			"email":      c.Get("email"),
			"phone":      c.FirstOf("phone", "mobile"),
			"id_number":  c.Get("id_number"),
		},
	}
	if f.Username == "" {
		f.Username, f.Password = cfg.Username, cfg.Password
	}
	if f.Programme == "" && len(c.Programmes) > 0 {
		f.Programme = c.Programmes[0].Name
	}

	// Only documents the applicant actually has are attached; UCT asks for the rest later.
	if p, ok := firstUpload(c, "idDocument", "id_doc"); ok {
		f.Documents = append(f.Documents, document{"idDocument", p})
	}
	if p, ok := firstUpload(c, "transcript", "results", "academic_record"); ok {
		f.Documents = append(f.Documents, document{"transcript", p})
	}
	return f, nil
}

func firstUpload(c entity.Context, kinds ...string) (string, bool) {
	for _, k := range kinds {
		if p, ok := c.Upload(k); ok {
			return p, true
		}
	}
	return "", false
}
