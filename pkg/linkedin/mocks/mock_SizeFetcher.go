// Package mocks provides test doubles for the linkedin session.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
)

// MockSizeFetcher is a mock type for the SizeFetcher interface.
type MockSizeFetcher struct {
	mock.Mock
}

// FetchSize provides a mock function with given fields: ctx, profileURL
func (_m *MockSizeFetcher) FetchSize(ctx context.Context, profileURL string) (string, bool) {
	ret := _m.Called(ctx, profileURL)

	if len(ret) == 0 {
		panic("no return value specified for FetchSize")
	}

	var r0 string
	var r1 bool
	if rf, ok := ret.Get(0).(func(context.Context, string) (string, bool)); ok {
		return rf(ctx, profileURL)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) string); ok {
		r0 = rf(ctx, profileURL)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) bool); ok {
		r1 = rf(ctx, profileURL)
	} else {
		r1 = ret.Get(1).(bool)
	}

	return r0, r1
}

// NewMockSizeFetcher creates a new instance of MockSizeFetcher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockSizeFetcher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSizeFetcher {
	mock := &MockSizeFetcher{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
