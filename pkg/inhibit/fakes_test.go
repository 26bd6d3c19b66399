package inhibit

import (
	"errors"
	"slices"
)

type fakeMembers map[string]*Member // key: guildID/memberID

func (f fakeMembers) Member(guildID, memberID string) (*Member, bool) {
	m, ok := f[guildID+"/"+memberID]
	return m, ok
}

type fakeChannels map[string]*Channel

func (f fakeChannels) Channel(id string) (*Channel, bool) {
	c, ok := f[id]
	return c, ok
}

// fakePerms grants the listed permission names per scope/user.
type fakePerms struct {
	guild   map[string][]string // key: guildID/userID
	channel map[string][]string // key: channelID/userID
	err     error
	calls   []string
}

var errLookup = errors.New("lookup exploded")

func diff(want, have []string) []string {
	var out []string
	for _, p := range want {
		if !slices.Contains(have, p) {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakePerms) MissingGuildPermissions(guildID, userID string, perms []string) ([]string, error) {
	f.calls = append(f.calls, "guild:"+guildID+"/"+userID)
	if f.err != nil {
		return nil, f.err
	}
	return diff(perms, f.guild[guildID+"/"+userID]), nil
}

func (f *fakePerms) MissingChannelPermissions(channelID, userID string, perms []string) ([]string, error) {
	f.calls = append(f.calls, "channel:"+channelID+"/"+userID)
	if f.err != nil {
		return nil, f.err
	}
	return diff(perms, f.channel[channelID+"/"+userID]), nil
}
