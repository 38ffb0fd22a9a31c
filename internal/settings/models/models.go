package models

type StoreInfo struct {
	Name    string `json:"name"`
	Tagline string `json:"tagline"`
	Address string `json:"address"`
	Hours   string `json:"hours"`
}

type BankAccount struct {
	Bank   string `json:"bank"`
	Number string `json:"number"`
	Holder string `json:"holder"`
}

type Contact struct {
	Phone    string `json:"phone"`
	Whatsapp string `json:"whatsapp"`
	Email    string `json:"email"`
}

type SocialMedia struct {
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
	Tiktok    string `json:"tiktok"`
}

type Status struct {
	StoreOpen        bool `json:"store_open"`
	CourierAvailable bool `json:"courier_available"`
}

// StoreSettings is the whole storefront configuration document. It is
// stored as one JSON blob; missing fields read back as their defaults.
type StoreSettings struct {
	StoreInfo    StoreInfo     `json:"store_info"`
	BankAccounts []BankAccount `json:"bank_accounts"`
	Contact      Contact       `json:"contact"`
	SocialMedia  SocialMedia   `json:"social_media"`
	Status       Status        `json:"status"`
}

// Defaults is the settings document a fresh install serves.
func Defaults() StoreSettings {
	return StoreSettings{
		StoreInfo: StoreInfo{
			Name:  "Sparx Parts",
			Hours: "Mon-Sat 08.00-17.00",
		},
		Status: Status{
			StoreOpen:        true,
			CourierAvailable: true,
		},
	}
}

// Record is the singleton settings row.
type Record struct {
	ID        int    `gorm:"primaryKey"`
	Payload   []byte `gorm:"type:text"`
	UpdatedAt int64  `gorm:"autoUpdateTime:milli"`
}

func (Record) TableName() string { return "store_settings" }

// SingletonID is the only row id the settings table ever holds.
const SingletonID = 1
