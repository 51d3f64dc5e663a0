// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package viewmodel

import (
	"github.com/rxdemo/rxusers/bind"
	"github.com/rxdemo/rxusers/github"
	"github.com/rxdemo/rxusers/stream"
)

// EmptyImage is shown in place of an avatar that cannot be loaded.
var EmptyImage = []byte{}

// AvatarLoader loads the image behind an avatar URL.
type AvatarLoader interface {
	LoadAvatar(url string) stream.Observable[[]byte]
}

// UserCellViewModel turns a user into the values displayed in one row. All
// outputs are driven: they never fail and deliver on the UI scheduler.
type UserCellViewModel struct {
	Name    stream.Observable[string]
	Avatar  stream.Observable[[]byte]
	Profile stream.Observable[string]
}

func NewUserCellViewModel(user stream.Observable[github.User], avatars AvatarLoader, ui stream.Scheduler) *UserCellViewModel {
	user = stream.CatchErrorJustReturn(user, github.User{})
	return &UserCellViewModel{
		Name: bind.Drive(
			stream.Map(user, func(u github.User) string { return u.Login }),
			"", ui),
		Profile: bind.Drive(
			stream.Map(user, func(u github.User) string { return u.HTMLURL }),
			"", ui),
		Avatar: bind.Drive(
			stream.FlatMapLatest(user, func(u github.User) stream.Observable[[]byte] {
				if u.AvatarURL == "" {
					return stream.Just(EmptyImage)
				}
				return stream.CatchErrorJustReturn(avatars.LoadAvatar(u.AvatarURL), EmptyImage)
			}),
			EmptyImage, ui),
	}
}

// UserCell is the display state of one row: the properties a row widget
// renders, bound to a UserCellViewModel. Disposing it releases the bindings.
type UserCell struct {
	Name    *bind.Property[string]
	Avatar  *bind.Property[[]byte]
	Profile *bind.Property[string]

	bag stream.DisposeBag
}

// CellOption selects the outputs a UserCell binds.
type CellOption func(*cellOptions)

type cellOptions struct {
	avatar bool
}

// WithoutAvatar leaves the avatar unbound, so it is never loaded and stays
// EmptyImage.
func WithoutAvatar() CellOption {
	return func(o *cellOptions) {
		o.avatar = false
	}
}

func NewUserCell(vm *UserCellViewModel, opts ...CellOption) *UserCell {
	o := cellOptions{avatar: true}
	for _, opt := range opts {
		opt(&o)
	}
	c := &UserCell{
		Name:    bind.NewProperty(""),
		Avatar:  bind.NewProperty(EmptyImage),
		Profile: bind.NewProperty(""),
	}
	c.bag.Insert(
		bind.BindTo(vm.Name, c.Name),
		bind.BindTo(vm.Profile, c.Profile),
	)
	if o.avatar {
		c.bag.Insert(bind.BindTo(vm.Avatar, c.Avatar))
	}
	return c
}

func (c *UserCell) Dispose() {
	c.bag.Dispose()
}
