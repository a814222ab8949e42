package accounts

// SimpleConfig is a ready-made Config for hosts that do not bring their own
// configuration layer. Zero values fall back to sensible defaults at
// construction time; the signing key is the only required input.
type SimpleConfig struct {
	SigningKey      string
	SigningMethod   string
	ContextKey      string
	TokenExpiration int
	TokenLookup     string
	AuthScheme      string
	Issuer          string
	Audience        []string
}

// NewConfig builds a SimpleConfig with defaults: HS256 signing, 24 hour
// sessions, and token lookup in the "token" cookie first, Authorization
// header second.
func NewConfig(signingKey string) *SimpleConfig {
	return &SimpleConfig{
		SigningKey:      signingKey,
		SigningMethod:   "HS256",
		ContextKey:      "token",
		TokenExpiration: 24,
		TokenLookup:     "cookie:token,header:Authorization",
		AuthScheme:      "Bearer",
	}
}

func (c *SimpleConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *SimpleConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return "HS256"
	}
	return c.SigningMethod
}

func (c *SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "token"
	}
	return c.ContextKey
}

func (c *SimpleConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return 24
	}
	return c.TokenExpiration
}

func (c *SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "cookie:token,header:Authorization"
	}
	return c.TokenLookup
}

func (c *SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c *SimpleConfig) GetIssuer() string {
	return c.Issuer
}

func (c *SimpleConfig) GetAudience() []string {
	return c.Audience
}

var _ Config = (*SimpleConfig)(nil)
