package identity

import "context"

type accountRepository struct {
	accounts map[ID]*Account
}

func NewAccountRepository() Repository {
	return &accountRepository{accounts: map[ID]*Account{}}
}

func (repo *accountRepository) Store(ctx context.Context, acc *Account) error {
	repo.accounts[acc.ID] = acc
	return nil
}

func (repo *accountRepository) Update(ctx context.Context, acc *Account) error {
	repo.accounts[acc.ID] = acc
	return nil
}

func (repo *accountRepository) FindByID(ctx context.Context, id ID) (*Account, error) {
	if u, ok := repo.accounts[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (repo *accountRepository) FindByName(ctx context.Context, username string) (*Account, error) {
	for _, v := range repo.accounts {
		if v.Username == username {
			return v, nil
		}
	}
	return nil, ErrNotFound
}

func (repo *accountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	for _, v := range repo.accounts {
		if v.Email == email {
			return v, nil
		}
	}
	return nil, ErrNotFound
}
