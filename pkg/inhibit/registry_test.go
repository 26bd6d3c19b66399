package inhibit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/inhibitor/pkg/cooldown"
)

func allow(context.Context, *Bot, *Command, Options) (Denial, error) { return nil, nil }

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register("b", allow)
	r.Register("a", allow)
	r.Register("c", allow)

	assert.Equal(t, []string{"b", "a", "c"}, r.Names())
	assert.Len(t, r.All(), 3)
}

func TestRegistryOverwriteKeepsPosition(t *testing.T) {
	r := NewRegistry()
	r.Register("first", allow)
	r.Register("second", allow)
	r.Register("first", func(context.Context, *Bot, *Command, Options) (Denial, error) {
		return OwnerOnly{}, nil
	})

	assert.Equal(t, []string{"first", "second"}, r.Names())
	fn, ok := r.Lookup("first")
	require.True(t, ok)
	d, err := fn(context.Background(), &Bot{}, &Command{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, OwnerOnly{}, d)
}

func TestRegistryLookupMissing(t *testing.T) {
	_, ok := NewRegistry().Lookup("nope")
	assert.False(t, ok)
}

func TestCheckStopsAtFirstDenial(t *testing.T) {
	r := NewRegistry()
	var ran []string
	track := func(name string, d Denial) Inhibitor {
		return func(context.Context, *Bot, *Command, Options) (Denial, error) {
			ran = append(ran, name)
			return d, nil
		}
	}
	r.Register("one", track("one", nil))
	r.Register("two", track("two", NSFWRequired{}))
	r.Register("three", track("three", nil))

	name, d, err := r.Check(context.Background(), &Bot{}, &Command{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "two", name)
	assert.Equal(t, NSFWRequired{}, d)
	assert.Equal(t, []string{"one", "two"}, ran)
}

func TestCheckPropagatesFault(t *testing.T) {
	bot := &Bot{ID: "bot", Permissions: &fakePerms{err: errLookup}}
	cmd := &Command{Name: "ban", BotGuildPermissions: []string{"BAN_MEMBERS"}}
	r := NewDefaultRegistry(cooldown.NewTracker(cooldown.NewMemoryStore(), nil))

	name, d, err := r.Check(context.Background(), bot, cmd, Options{GuildID: "g", ChannelID: "c", MemberID: "u"})
	assert.Equal(t, BotPermissions, name)
	assert.Nil(t, d)
	require.ErrorIs(t, err, errLookup)
}

func TestCheckAllowsPlainCommand(t *testing.T) {
	r := NewDefaultRegistry(cooldown.NewTracker(cooldown.NewMemoryStore(), nil))
	name, d, err := r.Check(context.Background(), &Bot{}, &Command{Name: "ping"}, Options{ChannelID: "c"})
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Nil(t, d)
}

func TestDefaultRegistryOrder(t *testing.T) {
	r := NewDefaultRegistry(cooldown.NewTracker(cooldown.NewMemoryStore(), nil))
	assert.Equal(t, []string{
		HasRole, Cooldown, NSFW, OwnerOnlyCheck, BotPermissions, UserPermissions, GuildOrDMOnly,
	}, r.Names())
}
