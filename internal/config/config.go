package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. It is loaded once at
// startup and treated as read-only afterwards; every component that
// needs part of it receives that part explicitly.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	Mongo      MongoConfig      `yaml:"mongo"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Notion     NotionConfig     `yaml:"notion"`
	Categories CategoryConfig   `yaml:"categories"`

	// Timezone is the fixed local timezone all wall-clock timestamps
	// are interpreted in.
	Timezone string `yaml:"timezone"`

	// ListLimit caps monthly listings when the caller does not ask for
	// a specific limit.
	ListLimit int `yaml:"list_limit"`
}

// MongoConfig configures the ledger store.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// RecognizerConfig selects and configures the recognition service.
type RecognizerConfig struct {
	// Provider is "gemini" or "openai". The openai provider works
	// against any OpenAI-compatible endpoint (DashScope/Qwen included)
	// via BaseURL.
	Provider string   `yaml:"provider"`
	Model    string   `yaml:"model"`
	APIKey   string   `yaml:"api_key"`
	BaseURL  string   `yaml:"base_url"`
	Timeout  Duration `yaml:"timeout"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ArchiveConfig configures best-effort screenshot archival. An empty
// bucket disables it.
type ArchiveConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// NotionConfig configures the monthly Notion export.
type NotionConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

// CategoryConfig is the keyword table driving classification.
type CategoryConfig struct {
	// Keywords maps a category label to the substrings that select it.
	Keywords map[string][]string `yaml:"keywords"`

	// Priority resolves multi-category hits, strongest first.
	Priority []string `yaml:"priority"`

	// TransferTriggers force the transfer label when nothing else hit.
	TransferTriggers []string `yaml:"transfer_triggers"`

	// Fallback is returned when no category matches at all.
	Fallback string `yaml:"fallback"`
}

// Default returns the built-in configuration, including the stock
// keyword table.
func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "chatledger",
			Collection: "expenses",
		},
		Recognizer: RecognizerConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			Timeout:  Duration(60 * time.Second),
		},
		Archive: ArchiveConfig{
			Prefix: "screenshots",
		},
		Timezone:   "Asia/Shanghai",
		ListLimit:  20,
		Categories: defaultCategories(),
	}
}

func defaultCategories() CategoryConfig {
	return CategoryConfig{
		Keywords: map[string][]string{
			"dining":         {"麦当劳", "肯德基", "星巴克", "美团", "饿了么", "必胜客", "海底捞", "喜茶", "蜜雪", "奶茶", "餐饮", "外卖", "饭", "火锅"},
			"shopping":       {"淘宝", "天猫", "京东", "拼多多", "超市", "屈臣氏", "沃尔玛", "大润发", "山姆", "购物", "买菜"},
			"transport":      {"滴滴", "高德", "地图", "打车", "共享单车", "哈啰", "青桔", "地铁", "公交", "出行", "高速", "停车"},
			"electronics":    {"apple", "苹果", "小米", "华为", "京东电器", "数码", "配件"},
			"entertainment":  {"腾讯视频", "爱奇艺", "优酷", "b站", "qq音乐", "网易云", "游戏", "会员", "电影"},
			"communications": {"话费", "流量", "通信", "联通", "移动", "电信", "宽带"},
			"medical":        {"医院", "药店", "医保", "体检", "诊所"},
			"transfer":       {"转账", "收款", "还款", "红包", "转付", "待确认收款"},
			"utilities":      {"水费", "电费", "燃气", "物业", "停车费", "供暖", "生活缴费"},
		},
		Priority:         []string{"transfer", "utilities", "transport", "dining", "shopping", "electronics", "entertainment", "communications", "medical"},
		TransferTriggers: []string{"转账", "收款", "待确认"},
		Fallback:         "other",
	}
}

// Load reads a YAML config file on top of the defaults, then applies
// environment overrides for secrets and connection strings.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.Mongo.URI = v
	} else if v := os.Getenv("MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("RECOGNIZER_API_KEY"); v != "" {
		c.Recognizer.APIKey = v
	} else if v := os.Getenv("DASHSCOPE_API_KEY"); v != "" {
		c.Recognizer.APIKey = v
	}
	if v := os.Getenv("RECOGNIZER_BASE_URL"); v != "" {
		c.Recognizer.BaseURL = v
	}
	if v := os.Getenv("GCS_BUCKET"); v != "" {
		c.Archive.Bucket = v
	}
	if v := os.Getenv("NOTION_TOKEN"); v != "" {
		c.Notion.Token = v
	}
	if v := os.Getenv("NOTION_DATABASE_ID"); v != "" {
		c.Notion.DatabaseID = v
	}
}

// Validate checks the parts of the config every component relies on.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	if c.ListLimit <= 0 {
		return fmt.Errorf("config: list_limit must be positive, got %d", c.ListLimit)
	}
	switch c.Recognizer.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("config: unknown recognizer provider %q", c.Recognizer.Provider)
	}
	if len(c.Categories.Keywords) == 0 {
		return fmt.Errorf("config: category keyword table is empty")
	}
	if c.Categories.Fallback == "" {
		return fmt.Errorf("config: category fallback label is empty")
	}
	return nil
}

// Location resolves the configured timezone. Validate has already
// checked it, so errors here mean the config was mutated after load.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
