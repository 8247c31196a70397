package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/rl1809/storefront/internal/port"
)

// BrowserStorageSuite checks the behaviour every adapter must share.
type BrowserStorageSuite struct {
	suite.Suite
	provider port.StorageProvider
	browser  string
}

func (s *BrowserStorageSuite) SetupTest() {
	s.browser = "test-" + uuid.NewString()
}

func (s *BrowserStorageSuite) TestGetMissing() {
	v, ok, err := s.provider.Storage(s.browser).GetItem(context.Background(), "nope")
	s.Require().NoError(err)
	s.False(ok)
	s.Nil(v)
}

func (s *BrowserStorageSuite) TestSetGetOverwrite() {
	ctx := context.Background()
	st := s.provider.Storage(s.browser)

	s.Require().NoError(st.SetItem(ctx, "cart_u1", []byte(`[1]`)))
	s.Require().NoError(st.SetItem(ctx, "cart_u1", []byte(`[1,2]`)))

	v, ok, err := st.GetItem(ctx, "cart_u1")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(`[1,2]`, string(v))
}

func (s *BrowserStorageSuite) TestRemove() {
	ctx := context.Background()
	st := s.provider.Storage(s.browser)

	s.Require().NoError(st.SetItem(ctx, "theme", []byte(`"dark"`)))
	s.Require().NoError(st.RemoveItem(ctx, "theme"))
	s.Require().NoError(st.RemoveItem(ctx, "theme"))

	_, ok, err := st.GetItem(ctx, "theme")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *BrowserStorageSuite) TestNamespacesAreIsolated() {
	ctx := context.Background()
	a := s.provider.Storage(s.browser)
	b := s.provider.Storage(s.browser + "-other")

	s.Require().NoError(a.SetItem(ctx, "session", []byte(`a`)))

	_, ok, err := b.GetItem(ctx, "session")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *BrowserStorageSuite) TestConcurrentWrites() {
	ctx := context.Background()
	st := s.provider.Storage(s.browser)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "k" + string(rune('a'+i))
			s.NoError(st.SetItem(ctx, key, []byte(key)))
		}(i)
	}
	wg.Wait()

	v, ok, err := st.GetItem(ctx, "kt")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("kt", string(v))
}
