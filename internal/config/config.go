package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// 邮件发送通道
const (
	TransportOutbox = "outbox"
	TransportSMTP   = "smtp"
	TransportResend = "resend"
)

// 抄送地址的放置方式
const (
	CCModeTo = "to" // 全部写入收件人
	CCModeCC = "cc"
)

// AppConfig 应用配置
type AppConfig struct {
	Input       InputConfig      `toml:"input"`
	Attachments AttachmentConfig `toml:"attachments"`
	Mail        MailConfig       `toml:"mail"`
	SMTP        SMTPConfig       `toml:"smtp"`
	Resend      ResendConfig     `toml:"resend"`
	Data        DataConfig       `toml:"data"`
	Server      ServerConfig     `toml:"server"`
	Log         LogConfig        `toml:"log"`
}

// InputConfig 输入表格配置
type InputConfig struct {
	OrdersPath     string `toml:"orders_path"`
	OrdersSheet    string `toml:"orders_sheet"`
	DirectoryPath  string `toml:"directory_path"`
	DirectorySheet string `toml:"directory_sheet"`
}

// AttachmentConfig 附件（供应商未结订单报表）配置
type AttachmentConfig struct {
	Dir             string `toml:"dir"`
	Prefix          string `toml:"prefix"`
	Ext             string `toml:"ext"`
	CriticalAgeDays int    `toml:"critical_age_days"`
	HighAgeDays     int    `toml:"high_age_days"`
}

// MailConfig 邮件内容与发送行为
type MailConfig struct {
	Transport       string `toml:"transport"`
	From            string `toml:"from"`
	CompanyName     string `toml:"company_name"`
	TeamName        string `toml:"team_name"`
	SubjectPrefix   string `toml:"subject_prefix"`
	TemplatePath    string `toml:"template_path"`
	CCMode          string `toml:"cc_mode"`
	SendTimeoutSecs int    `toml:"send_timeout_seconds"`
	ContinueOnError bool   `toml:"continue_on_error"`
	OutboxDir       string `toml:"outbox_dir"`
}

// SMTPConfig SMTP 服务器
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	TLS      string `toml:"tls"` // mandatory/opportunistic/none
}

// ResendConfig Resend API
type ResendConfig struct {
	APIKey   string `toml:"api_key"`
	FromName string `toml:"from_name"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Input: InputConfig{
			OrdersPath:    filepath.Join("Input Data", "PO_Report_Simulated.xlsx"),
			DirectoryPath: filepath.Join("Input Data", "Simulated Supplier Emails.xlsx"),
		},
		Attachments: AttachmentConfig{
			Dir:             "File_location",
			Prefix:          "Open_PO_",
			Ext:             ".xlsx",
			CriticalAgeDays: 60,
			HighAgeDays:     30,
		},
		Mail: MailConfig{
			Transport:       TransportOutbox,
			From:            "scm.team@yourcompany.com",
			CompanyName:     "Your Company Name",
			TeamName:        "Supply Chain Team",
			SubjectPrefix:   "Open PO Report - ",
			CCMode:          CCModeTo,
			SendTimeoutSecs: 60,
			OutboxDir:       "outbox",
		},
		SMTP: SMTPConfig{
			Port: 587,
			TLS:  "mandatory",
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Server: ServerConfig{
			Port: 20262,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

// SendTimeout 单封邮件发送超时
func (c *AppConfig) SendTimeout() time.Duration {
	return time.Duration(c.Mail.SendTimeoutSecs) * time.Second
}

// Validate 校验配置
func (c *AppConfig) Validate() error {
	switch c.Mail.Transport {
	case TransportOutbox, TransportSMTP, TransportResend:
	default:
		return fmt.Errorf("unknown mail transport %q", c.Mail.Transport)
	}
	switch c.Mail.CCMode {
	case CCModeTo, CCModeCC:
	default:
		return fmt.Errorf("unknown cc_mode %q", c.Mail.CCMode)
	}
	if c.Mail.SendTimeoutSecs <= 0 {
		return fmt.Errorf("send_timeout_seconds must be positive, got %d", c.Mail.SendTimeoutSecs)
	}
	if strings.TrimSpace(c.Mail.From) == "" {
		return fmt.Errorf("mail.from is required")
	}
	if c.Attachments.HighAgeDays > c.Attachments.CriticalAgeDays {
		return fmt.Errorf("high_age_days (%d) must not exceed critical_age_days (%d)",
			c.Attachments.HighAgeDays, c.Attachments.CriticalAgeDays)
	}
	if c.Mail.Transport == TransportSMTP && c.SMTP.Host == "" {
		return fmt.Errorf("smtp.host is required for the smtp transport")
	}
	if c.Mail.Transport == TransportResend && c.Resend.APIKey == "" {
		return fmt.Errorf("resend.api_key is required for the resend transport")
	}
	return nil
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 默认配置文件位置：可执行文件同目录下的 config.toml
func DefaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfig 从 config.toml 加载配置；文件不存在时使用默认配置
func LoadConfig(path string) (*AppConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(config)
	return config, nil
}

// applyEnv 环境变量覆盖（密钥不写入配置文件）
func applyEnv(config *AppConfig) {
	if v := os.Getenv("OPENPO_SMTP_PASSWORD"); v != "" {
		config.SMTP.Password = v
	}
	if v := os.Getenv("OPENPO_RESEND_API_KEY"); v != "" {
		config.Resend.APIKey = v
	}
	if v := os.Getenv("OPENPO_ORDERS_PATH"); v != "" {
		config.Input.OrdersPath = v
	}
	if v := os.Getenv("OPENPO_DIRECTORY_PATH"); v != "" {
		config.Input.DirectoryPath = v
	}
}

// SaveConfig 保存配置到 path
func SaveConfig(config *AppConfig, path string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir 确保数据目录及 outbox 目录存在，返回数据目录路径
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	if err := os.MkdirAll(OutboxPath(config, dataDir), 0755); err != nil {
		return "", err
	}

	return dataDir, nil
}

// OutboxPath 返回 outbox 目录：相对路径基于数据目录
func OutboxPath(config *AppConfig, dataDir string) string {
	if filepath.IsAbs(config.Mail.OutboxDir) {
		return config.Mail.OutboxDir
	}
	return filepath.Join(dataDir, config.Mail.OutboxDir)
}
