package identity

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"go.mongodb.org/mongo-driver/mongo"
)

type mongoAccountRepository struct {
	collection *mongo.Collection
}

type dbAccount struct {
	ID        ID `bson:"_id"`
	Username  string
	Email     string
	Password  string
	Role      string
	CreatedAt time.Time
}

func NewMongoAccountRepository(c *mongo.Collection) Repository {
	return &mongoAccountRepository{collection: c}
}

func (m *mongoAccountRepository) FindByName(ctx context.Context, username string) (*Account, error) {
	return m.findAccountBy(ctx, "username", username)
}

func (m *mongoAccountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return m.findAccountBy(ctx, "email", email)
}

func (m *mongoAccountRepository) FindByID(ctx context.Context, id ID) (*Account, error) {
	return m.findAccountBy(ctx, "_id", string(id))
}

func (m *mongoAccountRepository) findAccountBy(ctx context.Context, key string, val string) (*Account, error) {
	var a dbAccount
	sr := m.collection.FindOne(ctx, bson.M{key: val})

	if sr.Err() == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}

	if err := sr.Decode(&a); err != nil {
		return nil, err
	}

	acc := accountFromDBAccount(a)
	return &acc, nil
}

func (m *mongoAccountRepository) Update(ctx context.Context, acc *Account) error {
	dba := dbAccountFromAccount(acc)
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": dba.ID}, dba)
	return err
}

func (m *mongoAccountRepository) Store(ctx context.Context, acc *Account) error {
	dba := dbAccountFromAccount(acc)
	_, err := m.collection.InsertOne(ctx, &dba)
	return err
}

func dbAccountFromAccount(a *Account) dbAccount {
	return dbAccount{a.ID, a.Username, a.Email, a.Password, a.Role, a.CreatedAt}
}

func accountFromDBAccount(a dbAccount) Account {
	return Account{a.ID, a.Username, a.Email, a.Password, a.Role, a.CreatedAt}
}
