package models

import "time"

// State is the conversational state of a Session
type State int

const (
	StateIdle State = iota
	StateAwaitingPrice
	StateAwaitingManualBrand
	StateAwaitingAdminInput
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingPrice:
		return "awaiting_price"
	case StateAwaitingManualBrand:
		return "awaiting_manual_brand"
	case StateAwaitingAdminInput:
		return "awaiting_admin_input"
	default:
		return "unknown"
	}
}

// Gender values accepted by /gender
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderUnisex = "U"
)

// GenderNames maps a gender code to its display name
var GenderNames = map[string]string{
	GenderMale:   "Male",
	GenderFemale: "Female",
	GenderUnisex: "Unisex",
}

// Prices holds a discounted and a full price. A zero value with Set=false means
// "no price given".
type Prices struct {
	Discounted float64 `json:"discounted" yaml:"discounted"`
	Full       float64 `json:"full" yaml:"full"`
	Set        bool    `json:"set" yaml:"set"`
}

// Overrides are the operator settings layered on top of AI output
type Overrides struct {
	DefaultGender   string  `json:"default_gender,omitempty"`
	DefaultSupplier string  `json:"default_supplier,omitempty"`
	BrandOverride   string  `json:"brand_override,omitempty"`
	PriceOverride   *Prices `json:"price_override,omitempty"`
}

// Empty reports whether no override is configured
func (o Overrides) Empty() bool {
	return o.DefaultGender == "" && o.DefaultSupplier == "" && o.BrandOverride == "" && o.PriceOverride == nil
}

// Usage is the token accounting reported by the vision model
type Usage struct {
	PromptTokens     int `json:"prompt_tokens" yaml:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens" yaml:"completion_tokens"`
	TotalTokens      int `json:"total_tokens" yaml:"total_tokens"`
}

// Analysis is the normalized output of the vision model
type Analysis struct {
	Title           string   `json:"title" yaml:"title"`
	Description     string   `json:"description" yaml:"description"`
	Type            string   `json:"type" yaml:"type"`
	Color           string   `json:"color" yaml:"color"`
	SecondaryColors []string `json:"secondary_colors" yaml:"secondary_colors"`
	Brand           string   `json:"brand" yaml:"brand"`
	Material        string   `json:"material" yaml:"material"`
	StyleFeatures   []string `json:"style_features" yaml:"style_features"`
	Condition       string   `json:"condition" yaml:"condition"`
	ConfidenceScore int      `json:"confidence_score" yaml:"confidence_score"`
	BrandConfidence int      `json:"brand_confidence" yaml:"brand_confidence"`
	AnalysisNotes   string   `json:"analysis_notes" yaml:"analysis_notes"`

	// Repaired lists the fields the normalizer had to coerce into the vocabulary
	Repaired []string `json:"repaired,omitempty" yaml:"repaired,omitempty"`

	// Error marks a degraded analysis produced after a failed model call
	Error bool `json:"error" yaml:"error"`

	ProcessingTime time.Duration `json:"processing_time" yaml:"processing_time"`
	ModelUsed      string        `json:"model_used" yaml:"model_used"`
	ImageURL       string        `json:"image_url" yaml:"image_url"`
	Usage          Usage         `json:"api_usage" yaml:"api_usage"`
}

// PendingProduct is the in-progress record between photo intake and pricing
type PendingProduct struct {
	ProductID     string
	PhotoPath     string
	PhotoURL      string
	Analysis      Analysis
	CreatedAt     time.Time
	RequesterID   int64
	RequesterName string
}

// Session is the per-user conversational context
type Session struct {
	UserID    int64
	State     State
	Overrides Overrides
	Pending   *PendingProduct

	// AwaitingField is the setting a bare admin command is waiting for
	AwaitingField string
	// ReturnState is restored once the awaited admin input or brand is captured
	ReturnState State
}

// Reset returns the session to Idle and drops the pending product, keeping overrides
func (s *Session) Reset() {
	s.State = StateIdle
	s.Pending = nil
	s.AwaitingField = ""
	s.ReturnState = StateIdle
}

// Clear resets the session and drops all overrides
func (s *Session) Clear() {
	s.Reset()
	s.Overrides = Overrides{}
}

// CatalogRecord is one persisted catalog row
type CatalogRecord struct {
	ProductID       string
	Title           string
	Description     string
	Type            string
	Color           string
	Brand           string
	PhotoLinks      string
	DiscountedPrice string
	FullPrice       string
	Gender          string
	Supplier        string
	AIConfidence    int
	BrandConfidence int
	CreatedDate     time.Time
	Flags           string
	RequesterID     int64
	ProcessingTime  time.Duration
}
