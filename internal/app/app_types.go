package app

import (
	"passbook/internal/domain"
	"passbook/internal/service"
)

// CredentialView is the frontend-safe view of a credential (masked password).
type CredentialView struct {
	Index    int    `json:"index"`
	Website  string `json:"website"`
	Username string `json:"username"`
	Masked   string `json:"masked"`
}

// FormView is the input form as the frontend renders it. The pending
// password is returned as typed so the input keeps its value.
type FormView struct {
	Website  string `json:"website"`
	Username string `json:"username"`
	Password string `json:"password"`
	Mode     string `json:"mode"`
	Index    int    `json:"index"`
}

// StateView is everything the credential screen needs in one call.
type StateView struct {
	Credentials []CredentialView `json:"credentials"`
	Form        FormView         `json:"form"`
	Copied      bool             `json:"copied"`
	Backend     string           `json:"backend"`
}

// PendingInput is the form payload sent on every keystroke.
type PendingInput struct {
	Website  string `json:"website"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// SaveResult tells the frontend whether the form was stored or why not.
type SaveResult struct {
	Saved   bool     `json:"saved"`
	Message string   `json:"message,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

func credentialViews(list []domain.Credential) []CredentialView {
	views := make([]CredentialView, len(list))
	for i, c := range list {
		views[i] = CredentialView{
			Index:    i,
			Website:  c.Website,
			Username: c.Username,
			Masked:   service.Mask(c.Password),
		}
	}
	return views
}

func stateView(st service.State, backend string) StateView {
	return StateView{
		Credentials: credentialViews(st.Credentials),
		Form: FormView{
			Website:  st.Form.Website,
			Username: st.Form.Username,
			Password: st.Form.Password,
			Mode:     string(st.Form.Mode),
			Index:    st.Form.Index,
		},
		Copied:  st.Copied,
		Backend: backend,
	}
}
