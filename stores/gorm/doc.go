// Package gorm provides a GORM-backed implementation of the cloudauth
// UserStore. The unique index on email makes the duplicate-signup check
// atomic at the storage layer, so concurrent signups for one email cannot
// both succeed.
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
//	store := gormstore.NewUserStore(db)
//	store.AutoMigrate()
package gorm
