package domain

type UserID string

// User is an account that can log in. Hash is never rendered.
type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Hash     string `json:"-"`
	Salt     string `json:"-"`
	Role     string `json:"role"`
	Fullname string `json:"fullname"`
}
