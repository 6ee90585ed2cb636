package domain

// Default sink values.
const (
	DefaultArchivePath  = "risk_analysis.json"
	DefaultSheetName    = "Risk Analysis"
	DefaultSMTPHost     = "smtp.gmail.com"
	DefaultSMTPPort     = 587
	DefaultEmailSubject = "Legal and Risk Analysis Results"
	DefaultS3Prefix     = "reports/"
)

// EmailTransport selects how e-mail notifications are sent.
type EmailTransport string

// Available e-mail transports.
const (
	EmailTransportSMTP  EmailTransport = "smtp"
	EmailTransportGmail EmailTransport = "gmail"
)

// IsValid returns true if the transport is recognised.
func (t EmailTransport) IsValid() bool {
	return t == EmailTransportSMTP || t == EmailTransportGmail
}

// ArchiveSettings configures the local JSON archive sink.
type ArchiveSettings struct {
	Enabled bool

	// Path is the output file. Existing files are replaced atomically.
	Path string
}

// SheetsSettings configures the Google Sheets export sink.
type SheetsSettings struct {
	Enabled bool

	// Name is the spreadsheet title. An existing spreadsheet with this
	// title is reused, otherwise one is created.
	Name string

	// CredentialsFile is a service account or authorized-user JSON file.
	CredentialsFile string

	// ShareWith is an optional e-mail address granted writer access
	// to newly created spreadsheets.
	ShareWith string
}

// EmailSettings configures the e-mail notification sink.
type EmailSettings struct {
	Enabled   bool
	Transport EmailTransport
	From      string
	To        string
	Subject   string

	// SMTP transport.
	Host     string
	Port     int
	Username string
	Password string

	// Gmail API transport.
	CredentialsFile string
}

// TelegramSettings configures the Telegram notification sink.
type TelegramSettings struct {
	Enabled  bool
	BotToken string
	ChatID   string
}

// S3Settings configures the object storage archive sink.
type S3Settings struct {
	Enabled   bool
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string

	// Prefix is prepended to the object key <prefix><run-id>.json.
	Prefix string

	// UsePathStyle addresses the bucket in the path (MinIO and friends).
	UsePathStyle bool
}

// SinkSettings holds the configuration of every sink.
type SinkSettings struct {
	Archive  ArchiveSettings
	Sheets   SheetsSettings
	Email    EmailSettings
	Telegram TelegramSettings
	S3       S3Settings
}

// DefaultSinkSettings enables the local archive and fills in defaults
// for the other sinks without enabling them.
func DefaultSinkSettings() SinkSettings {
	return SinkSettings{
		Archive: ArchiveSettings{Enabled: true, Path: DefaultArchivePath},
		Sheets:  SheetsSettings{Name: DefaultSheetName},
		Email: EmailSettings{
			Transport: EmailTransportSMTP,
			Subject:   DefaultEmailSubject,
			Host:      DefaultSMTPHost,
			Port:      DefaultSMTPPort,
		},
		S3: S3Settings{Prefix: DefaultS3Prefix},
	}
}
