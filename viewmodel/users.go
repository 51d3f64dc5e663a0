// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

// Package viewmodel holds the presentation logic of the users list: it loads
// users and turns each one into a row view model.
package viewmodel

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/rxdemo/rxusers/github"
	"github.com/rxdemo/rxusers/logger"
	"github.com/rxdemo/rxusers/stream"
)

// UserLoader loads the list of users.
type UserLoader interface {
	LoadUsers() stream.Observable[[]github.User]
}

type UsersViewModel struct {
	loader  UserLoader
	avatars AvatarLoader
	ui      stream.Scheduler
	log     *zap.SugaredLogger

	bag    *stream.DisposeBag
	cells  *stream.Subject[[]*UserCellViewModel]
	errors *stream.Subject[error]
}

type Option func(*UsersViewModel)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(vm *UsersViewModel) {
		vm.log = log
	}
}

// WithUIScheduler sets the scheduler on which the cells and the values of
// each cell are delivered. Defaults to stream.Immediate.
func WithUIScheduler(ui stream.Scheduler) Option {
	return func(vm *UsersViewModel) {
		vm.ui = ui
	}
}

func NewUsersViewModel(loader UserLoader, avatars AvatarLoader, opts ...Option) *UsersViewModel {
	vm := &UsersViewModel{
		loader:  loader,
		avatars: avatars,
		ui:      stream.Immediate,
		bag:     stream.NewDisposeBag(),
		cells:   stream.NewBehaviorSubject[[]*UserCellViewModel](nil),
		errors:  stream.NewSubject[error](),
	}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.log == nil {
		vm.log = logger.New(logger.WithName("viewmodel"))
	}
	return vm
}

// Load fetches the users and publishes their cell view models on Cells().
// A failure is published on Errors() and the cells are left as they were.
func (vm *UsersViewModel) Load() {
	cells := stream.ObserveOn(stream.Map(vm.loader.LoadUsers(), vm.prepareCells), vm.ui)
	vm.bag.Insert(stream.Subscribe(cells, stream.ObserverFuncs[[]*UserCellViewModel]{
		Next: func(cells []*UserCellViewModel) {
			vm.log.Debugw("users loaded", "count", len(cells))
			vm.cells.OnNext(cells)
		},
		Error: func(err error) {
			vm.log.Errorw("failed to load users", zap.Error(err))
			vm.errors.OnNext(err)
		},
	}))
}

func (vm *UsersViewModel) prepareCells(users []github.User) []*UserCellViewModel {
	return lo.Map(users, func(u github.User, _ int) *UserCellViewModel {
		return NewUserCellViewModel(stream.Just(u), vm.avatars, vm.ui)
	})
}

// Cells emits the current cell view models, then every reload.
func (vm *UsersViewModel) Cells() stream.Observable[[]*UserCellViewModel] {
	return vm.cells
}

// Errors emits the failures of Load.
func (vm *UsersViewModel) Errors() stream.Observable[error] {
	return vm.errors
}

// Close cancels loads in progress and completes Cells() and Errors().
func (vm *UsersViewModel) Close() {
	vm.bag.Dispose()
	vm.cells.OnCompleted()
	vm.errors.OnCompleted()
}
