package catalog

import (
	"encoding/json"
	"log/slog"

	"github.com/subtrackapp/subtrack-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type seedMerchant struct {
	Name           string
	DisplayName    string
	Category       string
	Keywords       []string
	Countries      []string
	Currencies     []string
	TypicalAmounts map[string]float64
	BillingCycles  []string
}

var seedMerchants = []seedMerchant{
	{Name: "netflix", DisplayName: "Netflix", Category: "streaming", Keywords: []string{"netflix", "netflix.com"}, Countries: []string{"US", "GB", "CA", "DE", "TR"}, Currencies: []string{"USD", "GBP", "EUR", "TRY"}, TypicalAmounts: map[string]float64{"USD": 15.49, "GBP": 10.99, "EUR": 13.99}, BillingCycles: []string{"monthly"}},
	{Name: "spotify", DisplayName: "Spotify", Category: "music", Keywords: []string{"spotify", "spotify usa", "spotify ab"}, Countries: []string{"US", "GB", "CA", "DE", "TR"}, Currencies: []string{"USD", "GBP", "EUR", "TRY"}, TypicalAmounts: map[string]float64{"USD": 11.99, "GBP": 11.99, "EUR": 10.99}, BillingCycles: []string{"monthly"}},
	{Name: "disney-plus", DisplayName: "Disney+", Category: "streaming", Keywords: []string{"disney plus", "disneyplus", "disney+"}, Countries: []string{"US", "GB", "CA", "DE"}, Currencies: []string{"USD", "GBP", "EUR"}, TypicalAmounts: map[string]float64{"USD": 13.99, "GBP": 7.99}, BillingCycles: []string{"monthly", "yearly"}},
	{Name: "hulu", DisplayName: "Hulu", Category: "streaming", Keywords: []string{"hulu"}, Countries: []string{"US"}, Currencies: []string{"USD"}, TypicalAmounts: map[string]float64{"USD": 7.99}, BillingCycles: []string{"monthly"}},
	{Name: "amazon-prime", DisplayName: "Amazon Prime", Category: "shopping", Keywords: []string{"amazon prime", "prime video", "amzn prime"}, Countries: []string{"US", "GB", "DE"}, Currencies: []string{"USD", "GBP", "EUR"}, TypicalAmounts: map[string]float64{"USD": 14.99, "GBP": 8.99}, BillingCycles: []string{"monthly", "yearly"}},
	{Name: "youtube-premium", DisplayName: "YouTube Premium", Category: "streaming", Keywords: []string{"youtube premium", "youtubepremium", "google youtube"}, Countries: []string{"US", "GB", "CA", "DE"}, Currencies: []string{"USD", "GBP", "EUR"}, TypicalAmounts: map[string]float64{"USD": 13.99}, BillingCycles: []string{"monthly"}},
	{Name: "hbo-max", DisplayName: "Max", Category: "streaming", Keywords: []string{"hbo max", "hbomax", "max.com"}, Countries: []string{"US"}, Currencies: []string{"USD"}, TypicalAmounts: map[string]float64{"USD": 16.99}, BillingCycles: []string{"monthly"}},
	{Name: "apple", DisplayName: "Apple Services", Category: "software", Keywords: []string{"apple.com/bill", "apple services", "itunes.com"}, Countries: []string{"US", "GB", "CA", "DE", "TR"}, Currencies: []string{"USD", "GBP", "EUR", "TRY"}, TypicalAmounts: map[string]float64{}, BillingCycles: []string{"monthly", "yearly"}},
	{Name: "icloud", DisplayName: "iCloud+", Category: "cloud", Keywords: []string{"icloud", "apple icloud"}, Countries: []string{"US", "GB", "CA", "DE"}, Currencies: []string{"USD", "GBP", "EUR"}, TypicalAmounts: map[string]float64{"USD": 2.99, "GBP": 2.99}, BillingCycles: []string{"monthly"}},
	{Name: "adobe", DisplayName: "Adobe Creative Cloud", Category: "software", Keywords: []string{"adobe", "adobe creative cloud", "adobe systems"}, Countries: []string{"US", "GB", "CA", "DE"}, Currencies: []string{"USD", "GBP", "EUR"}, TypicalAmounts: map[string]float64{"USD": 59.99}, BillingCycles: []string{"monthly", "yearly"}},
	{Name: "microsoft-365", DisplayName: "Microsoft 365", Category: "software", Keywords: []string{"microsoft 365", "msft office", "microsoft office"}, Countries: []string{"US", "GB", "CA", "DE"}, Currencies: []string{"USD", "GBP", "EUR"}, TypicalAmounts: map[string]float64{"USD": 9.99}, BillingCycles: []string{"monthly", "yearly"}},
	{Name: "dropbox", DisplayName: "Dropbox", Category: "cloud", Keywords: []string{"dropbox"}, Countries: []string{"US", "GB", "CA", "DE"}, Currencies: []string{"USD", "GBP", "EUR"}, TypicalAmounts: map[string]float64{"USD": 11.99}, BillingCycles: []string{"monthly", "yearly"}},
	{Name: "github", DisplayName: "GitHub", Category: "software", Keywords: []string{"github"}, Countries: []string{"US", "GB", "CA", "DE"}, Currencies: []string{"USD"}, TypicalAmounts: map[string]float64{"USD": 4.00}, BillingCycles: []string{"monthly", "yearly"}},
	{Name: "audible", DisplayName: "Audible", Category: "books", Keywords: []string{"audible", "audible.com"}, Countries: []string{"US", "GB", "DE"}, Currencies: []string{"USD", "GBP", "EUR"}, TypicalAmounts: map[string]float64{"USD": 14.95, "GBP": 7.99}, BillingCycles: []string{"monthly"}},
	{Name: "nytimes", DisplayName: "The New York Times", Category: "news", Keywords: []string{"nytimes", "ny times", "new york times"}, Countries: []string{"US"}, Currencies: []string{"USD"}, TypicalAmounts: map[string]float64{"USD": 17.00}, BillingCycles: []string{"monthly"}},
	{Name: "planet-fitness", DisplayName: "Planet Fitness", Category: "fitness", Keywords: []string{"planet fitness", "planet fit"}, Countries: []string{"US"}, Currencies: []string{"USD"}, TypicalAmounts: map[string]float64{"USD": 10.00}, BillingCycles: []string{"monthly"}},
	{Name: "playstation", DisplayName: "PlayStation Plus", Category: "gaming", Keywords: []string{"playstation network", "playstation plus", "sony playstation"}, Countries: []string{"US", "GB", "DE"}, Currencies: []string{"USD", "GBP", "EUR"}, TypicalAmounts: map[string]float64{"USD": 17.99}, BillingCycles: []string{"monthly", "yearly"}},
	{Name: "xbox", DisplayName: "Xbox Game Pass", Category: "gaming", Keywords: []string{"xbox game pass", "microsoft xbox", "xbox"}, Countries: []string{"US", "GB", "DE"}, Currencies: []string{"USD", "GBP", "EUR"}, TypicalAmounts: map[string]float64{"USD": 16.99}, BillingCycles: []string{"monthly"}},
	{Name: "doordash", DisplayName: "DashPass", Category: "food", Keywords: []string{"dashpass", "doordash dashpass"}, Countries: []string{"US", "CA"}, Currencies: []string{"USD", "CAD"}, TypicalAmounts: map[string]float64{"USD": 9.99}, BillingCycles: []string{"monthly"}},
	{Name: "duolingo", DisplayName: "Duolingo", Category: "education", Keywords: []string{"duolingo", "duolingo super"}, Countries: []string{"US", "GB", "DE", "TR"}, Currencies: []string{"USD", "GBP", "EUR", "TRY"}, TypicalAmounts: map[string]float64{"USD": 12.99}, BillingCycles: []string{"monthly", "yearly"}},
}

// Seed inserts the curated merchant list, skipping names already present.
func Seed(db *gorm.DB) error {
	created := 0
	for _, m := range seedMerchants {
		row := models.KnownMerchant{
			Name:           m.Name,
			DisplayName:    m.DisplayName,
			Category:       m.Category,
			Keywords:       mustJSON(m.Keywords),
			Countries:      mustJSON(m.Countries),
			Currencies:     mustJSON(m.Currencies),
			TypicalAmounts: mustJSON(m.TypicalAmounts),
			BillingCycles:  mustJSON(m.BillingCycles),
			IsActive:       true,
		}
		result := db.Where("name = ?", m.Name).FirstOrCreate(&row)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			created++
		}
	}
	if created > 0 {
		slog.Info("merchant catalog seeded", "created", created, "total", len(seedMerchants))
	}
	return nil
}

func mustJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}
