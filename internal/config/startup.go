package config

import "log/slog"

// LogStartupConfig logs the server's effective configuration at startup.
// Secret values (TokenSecret) are never logged, only their presence.
func LogStartupConfig(logger *slog.Logger, cfg *Config) {
	if cfg == nil {
		logger.Warn("noops starting without configuration")
		return
	}

	tokenSecretSource := "environment"
	if !cfg.IsProduction() && cfg.TokenSecret == insecureDevSecret {
		tokenSecretSource = "development fallback"
	}

	logger.Info("noops configuration",
		"environment", cfg.AppEnv,
		"listen_addr", cfg.ListenAddr,
		"public_base_url", cfg.PublicBaseURL,
		"db_path", cfg.DBPath,
		"blob_prefix", cfg.BlobPrefix,
		"adapter_path", cfg.AdapterPath,
		"body_limit_bytes", cfg.BodyLimitBytes,
		"token_issuer", cfg.TokenIssuer,
		"token_ttl", cfg.TokenTTL.String(),
		"token_secret_source", tokenSecretSource,
		"invocation_deadline", cfg.InvocationDeadline.String(),
		"invocation_memory_cap_mib", cfg.InvocationMemoryCapMiB,
	)
}
