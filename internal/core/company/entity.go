package company

import "time"

// Company は事業者アカウントを表します。
type Company struct {
	ID           string
	Name         string
	DisplayName  string
	Email        string
	PasswordHash string
	LogoURL      *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile は外部に公開してよい会社情報です。PasswordHash を含みません。
type Profile struct {
	ID          string
	Name        string
	DisplayName string
	Email       string
	LogoURL     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Profile は公開プロフィールを返します。
func (c *Company) Profile() Profile {
	var logo *string
	if c.LogoURL != nil {
		v := *c.LogoURL
		logo = &v
	}
	return Profile{
		ID:          c.ID,
		Name:        c.Name,
		DisplayName: c.DisplayName,
		Email:       c.Email,
		LogoURL:     logo,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
