package btcname

import (
	"strconv"
	"strings"

	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/registrar"
)

const eventHashSeparator = "|"

func getEventRegisterString(mode string, registration registrar.Registration) string {
	var sb strings.Builder
	sb.WriteString("register;")
	sb.WriteString(mode + ";")
	sb.WriteString(registration.Key + ";")
	sb.WriteString(registration.InscriptionId.String() + ";")
	sb.WriteString(strconv.FormatInt(registration.Number, 10) + ";")
	sb.WriteString(registration.Kind.String())
	return sb.String()
}
