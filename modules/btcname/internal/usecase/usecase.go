package usecase

import (
	"time"

	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/datagateway"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/registrar"
	"github.com/patrickmn/go-cache"
)

const DefaultNameCacheTTL = time.Minute

type Usecase struct {
	btcnameDg datagateway.BTCNameReaderDataGateway
	modes     []registrar.Mode

	// collection key -> *entity.Collection. Only bound keys are cached.
	nameCache *cache.Cache
}

func New(btcnameDg datagateway.BTCNameReaderDataGateway, modes []registrar.Mode, nameCacheTTL time.Duration) *Usecase {
	if nameCacheTTL <= 0 {
		nameCacheTTL = DefaultNameCacheTTL
	}
	return &Usecase{
		btcnameDg: btcnameDg,
		modes:     modes,
		nameCache: cache.New(nameCacheTTL, 2*nameCacheTTL),
	}
}
