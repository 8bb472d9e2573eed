package config

import "time"

// NewBackupForTest creates a Backup config for testing purposes
func NewBackupForTest(days int, users []string, sanitizeHTML bool) *Backup {
	return &Backup{
		days:         days,
		users:        users,
		sanitizeHTML: sanitizeHTML,
	}
}

// NewGraphForTest creates a Graph config for testing purposes
func NewGraphForTest(clientID, tenantID, clientSecret, endpoint, loginEndpoint string) *Graph {
	return &Graph{
		clientID:      clientID,
		tenantID:      tenantID,
		clientSecret:  clientSecret,
		endpoint:      endpoint,
		loginEndpoint: loginEndpoint,
		timeout:       5 * time.Second,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID, databaseID string) *Repository {
	return &Repository{backend: backend, projectID: projectID, databaseID: databaseID}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID string) *Slack {
	return &Slack{botToken: botToken, channelID: channelID}
}

// NewEnvFileForTest creates an EnvFile config for testing purposes
func NewEnvFileForTest(path string) *EnvFile {
	return &EnvFile{path: path}
}

// NewStorageForTest creates a Storage config for testing purposes
func NewStorageForTest(bucket, prefix string) *Storage {
	return &Storage{bucket: bucket, prefix: prefix}
}
