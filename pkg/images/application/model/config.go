package model

// Config is built once by the CLI front end from flags and environment
// defaults and passed explicitly to every stage and generator operation.
type Config struct {
	Source           string
	GitRepository    string
	TravisCache      string
	DockerRepository string
	DockerUsername   string
	DockerPassword   string
}
