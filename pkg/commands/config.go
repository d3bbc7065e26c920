package commands

type Config struct {
	IsQuiet bool
}
