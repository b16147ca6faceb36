package proposal

import (
	"credit-ledger/internal/domain/uow"
	"credit-ledger/internal/testutil/creditmock"
	"credit-ledger/internal/testutil/proposalmock"
)

func uowRepos(p *proposalmock.Repo) uow.Repos {
	return uow.Repos{Proposals: p, Credits: &creditmock.Repo{}}
}
