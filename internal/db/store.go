package db

import "github.com/meowhiks/kbp-app/internal/models"

// Store — методная обёртка над функциями пакета, чтобы подставлять
// хранилище в бот и поллер через их интерфейсы.
type Store struct{}

func (Store) FindByToken(token string) (*models.UserRecord, bool) {
	return FindByToken(token)
}

func (Store) BindTelegram(token string, tgUserID int64, username, firstName string) (*models.UserRecord, error) {
	return BindTelegram(token, tgUserID, username, firstName)
}

func (Store) BoundUsers() ([]models.UserRecord, error) {
	return BoundUsers()
}

func (Store) UpdateSnapshots(token string, upd SnapshotUpdate) error {
	return UpdateSnapshots(token, upd)
}

func (Store) GetOffset() (int, error) {
	return GetOffset()
}

func (Store) SetOffset(offset int) error {
	return SetOffset(offset)
}
