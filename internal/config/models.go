package config

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// GmailConfig represents the configuration for the Gmail mailbox
type GmailConfig struct {
	Query        string
	MaxResults   int
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

// IngestConfig represents the configuration for the ingest loop
type IngestConfig struct {
	UserID     string
	Interval   string
	RunOnce    bool
	ListRecent int
}

// ParserConfig carries the digest-template markers the tile parser keys on
type ParserConfig struct {
	MinImagePx         int
	CampaignSenderID   string
	Denylist           []string
	BoilerplateTokens  []string
	TodayMarkers       []string
	WeekMarkers        []string
	DateParamKeys      []string
	DateDayID          string
	DateMonthID        string
	DateYearID         string
	AcceptRemoteImages bool
}

// OCRConfig represents the configuration for the recognition engine
type OCRConfig struct {
	Language    string
	PageSegMode int
	Preprocess  bool
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// StoreConfig represents the configuration for the persistence backend
type StoreConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetGmail returns the Gmail configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		Query:        c.GetString("gmail.query"),
		MaxResults:   c.GetInt("gmail.max_results"),
		ClientID:     c.GetString("gmail.client_id"),
		ClientSecret: c.GetString("gmail.client_secret"),
		AccessToken:  c.GetString("gmail.access_token"),
		RefreshToken: c.GetString("gmail.refresh_token"),
	}
}

// GetIngest returns the ingest loop configuration
func (c *Config) GetIngest() IngestConfig {
	return IngestConfig{
		UserID:     c.GetString("ingest.user_id"),
		Interval:   c.GetString("ingest.interval"),
		RunOnce:    c.GetBool("ingest.run_once"),
		ListRecent: c.GetInt("ingest.list_recent"),
	}
}

// GetParser returns the parser configuration
func (c *Config) GetParser() ParserConfig {
	return ParserConfig{
		MinImagePx:         c.GetInt("parser.min_image_px"),
		CampaignSenderID:   c.GetString("parser.campaign_sender_id"),
		Denylist:           c.GetStringSlice("parser.denylist"),
		BoilerplateTokens:  c.GetStringSlice("parser.boilerplate_tokens"),
		TodayMarkers:       c.GetStringSlice("parser.today_markers"),
		WeekMarkers:        c.GetStringSlice("parser.week_markers"),
		DateParamKeys:      c.GetStringSlice("parser.date_param_keys"),
		DateDayID:          c.GetString("parser.date_day_id"),
		DateMonthID:        c.GetString("parser.date_month_id"),
		DateYearID:         c.GetString("parser.date_year_id"),
		AcceptRemoteImages: c.GetBool("parser.accept_remote_images"),
	}
}

// GetOCR returns the OCR configuration
func (c *Config) GetOCR() OCRConfig {
	return OCRConfig{
		Language:    c.GetString("ocr.language"),
		PageSegMode: c.GetInt("ocr.page_seg_mode"),
		Preprocess:  c.GetBool("ocr.preprocess"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetStore returns the store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:       c.GetString("store.type"),
		SQLitePath: c.GetString("store.sqlite_path"),
		MySQLDSN:   c.GetString("store.mysql_dsn"),
	}
}
