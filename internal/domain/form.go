package domain

// FormMode is the state of the input form.
type FormMode string

const (
	// FormAdding means a save appends a new credential.
	FormAdding FormMode = "adding"
	// FormEditing means a save replaces the credential at Form.Index.
	FormEditing FormMode = "editing"
)

// Form holds the pending input fields and the edit position.
// Index is only meaningful in FormEditing; editing is keyed by position,
// not by credential identity.
type Form struct {
	Website  string   `json:"website"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	Mode     FormMode `json:"mode"`
	Index    int      `json:"index"`
}

// NewForm returns an empty form in adding mode.
func NewForm() Form {
	return Form{Mode: FormAdding, Index: -1}
}

// Pending returns the form fields as a Credential.
func (f Form) Pending() Credential {
	return Credential{Website: f.Website, Username: f.Username, Password: f.Password}
}

// Editing reports whether the form is in editing mode and at which index.
func (f Form) Editing() (int, bool) {
	if f.Mode == FormEditing {
		return f.Index, true
	}
	return -1, false
}
