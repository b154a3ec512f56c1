package common

type Module string

const (
	ModuleBTCName Module = "btcname"
)

func (m Module) String() string {
	return string(m)
}
