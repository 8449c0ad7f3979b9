package vault

import "fmt"

// Placeholder is written into every field by Init; an operator replaces it
// with real slot users and passwords before the first rotation.
const Placeholder = "TBD"

// Document field names as stored in the KV v2 secret.
const (
	keyActiveUser         = "postgresql_active_user"
	keyActiveUserPassword = "postgresql_active_user_password"
	keyUser1              = "postgresql_user_1"
	keyUser1Password      = "postgresql_user_1_password"
	keyUser2              = "postgresql_user_2"
	keyUser2Password      = "postgresql_user_2_password"
)

// Credentials is the rotation document: the two slot users, their passwords,
// and which of them the application currently authenticates as.
type Credentials struct {
	ActiveUser         string
	ActiveUserPassword string
	User1              string
	User1Password      string
	User2              string
	User2Password      string
}

// HasActiveUser reports whether the active user matches one of the two
// rotation slots. A document failing this check must not be rotated.
func (c *Credentials) HasActiveUser() bool {
	return c.ActiveUser == c.User1 || c.ActiveUser == c.User2
}

// PassiveUser returns the user and current password of the slot that is not
// active. Callers must have checked HasActiveUser first.
func (c *Credentials) PassiveUser() (user, password string) {
	if c.ActiveUser == c.User1 {
		return c.User2, c.User2Password
	}
	return c.User1, c.User1Password
}

// SetPassivePassword records a new password for the passive slot.
func (c *Credentials) SetPassivePassword(password string) {
	if c.ActiveUser == c.User1 {
		c.User2Password = password
	} else {
		c.User1Password = password
	}
}

// SwitchActiveUser makes the passive slot active: the active user and its
// password now reference the other slot.
func (c *Credentials) SwitchActiveUser() {
	if c.ActiveUser == c.User1 {
		c.ActiveUser = c.User2
		c.ActiveUserPassword = c.User2Password
	} else {
		c.ActiveUser = c.User1
		c.ActiveUserPassword = c.User1Password
	}
}

func (c *Credentials) toMap() map[string]interface{} {
	return map[string]interface{}{
		keyActiveUser:         c.ActiveUser,
		keyActiveUserPassword: c.ActiveUserPassword,
		keyUser1:              c.User1,
		keyUser1Password:      c.User1Password,
		keyUser2:              c.User2,
		keyUser2Password:      c.User2Password,
	}
}

func credentialsFromMap(data map[string]interface{}) (*Credentials, error) {
	creds := &Credentials{}
	fields := []struct {
		key  string
		dest *string
	}{
		{keyActiveUser, &creds.ActiveUser},
		{keyActiveUserPassword, &creds.ActiveUserPassword},
		{keyUser1, &creds.User1},
		{keyUser1Password, &creds.User1Password},
		{keyUser2, &creds.User2},
		{keyUser2Password, &creds.User2Password},
	}

	for _, f := range fields {
		raw, ok := data[f.key]
		if !ok {
			return nil, fmt.Errorf("secret is missing field '%s'", f.key)
		}
		value, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("secret field '%s' is not a string", f.key)
		}
		*f.dest = value
	}

	return creds, nil
}

// placeholderCredentials returns the bootstrap template.
func placeholderCredentials() *Credentials {
	return &Credentials{
		ActiveUser:         Placeholder,
		ActiveUserPassword: Placeholder,
		User1:              Placeholder,
		User1Password:      Placeholder,
		User2:              Placeholder,
		User2Password:      Placeholder,
	}
}
