package model

import "errors"

var (
	// ErrNotFound запись не найдена в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrCodeTaken короткий идентификатор уже занят другой ссылкой.
	ErrCodeTaken = errors.New("short id already taken")
	// ErrValidation некорректные входные данные.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden у вызывающего нет прав на операцию.
	ErrForbidden = errors.New("forbidden")
	// ErrUserExists пользователь с таким email уже зарегистрирован.
	ErrUserExists = errors.New("user exists")
	// ErrBadCredentials неверный email или пароль.
	ErrBadCredentials = errors.New("bad credentials")
)
