package role

// StorageKey is the fixed key the UserConfig document is persisted under.
const StorageKey = "aiRoleMaster.userConfig"

type GroupChat struct {
	Active  bool     `json:"active"`
	RoleIDs []string `json:"roleIds"`
}

// UserConfig is the single root persisted document. CustomRoles holds every
// installed role, custom or market-sourced. Revision is the optimistic
// concurrency counter maintained by the config store.
type UserConfig struct {
	CurrentRoleID        string    `json:"currentRoleId"`
	AutoApplyRole        bool      `json:"autoApplyRole"`
	CustomRoles          []Role    `json:"customRoles"`
	FavoriteRoles        []string  `json:"favoriteRoles"`
	InstalledMarketRoles []string  `json:"installedMarketRoles"`
	GroupChat            GroupChat `json:"groupChat"`
	Revision             uint64    `json:"revision"`
}

func DefaultConfig() UserConfig {
	return UserConfig{
		AutoApplyRole:        true,
		CustomRoles:          []Role{},
		FavoriteRoles:        []string{},
		InstalledMarketRoles: []string{},
		GroupChat:            GroupChat{RoleIDs: []string{}},
	}
}

// Normalize replaces nil collections with empty ones so documents written by
// older versions decode into the same shape as fresh defaults.
func (c *UserConfig) Normalize() {
	if c.CustomRoles == nil {
		c.CustomRoles = []Role{}
	}
	for i := range c.CustomRoles {
		c.CustomRoles[i].normalizeSets()
	}
	if c.FavoriteRoles == nil {
		c.FavoriteRoles = []string{}
	}
	if c.InstalledMarketRoles == nil {
		c.InstalledMarketRoles = []string{}
	}
	if c.GroupChat.RoleIDs == nil {
		c.GroupChat.RoleIDs = []string{}
	}
}

func (c UserConfig) Clone() UserConfig {
	out := c
	out.CustomRoles = make([]Role, len(c.CustomRoles))
	for i, r := range c.CustomRoles {
		out.CustomRoles[i] = r.Clone()
	}
	out.FavoriteRoles = append([]string{}, c.FavoriteRoles...)
	out.InstalledMarketRoles = append([]string{}, c.InstalledMarketRoles...)
	out.GroupChat.RoleIDs = append([]string{}, c.GroupChat.RoleIDs...)
	return out
}

func (c UserConfig) indexOf(id string) int {
	for i, r := range c.CustomRoles {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// FindRole is a linear lookup by id. A miss is reported with ok=false.
func (c UserConfig) FindRole(id string) (Role, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.CustomRoles[i], true
	}
	return Role{}, false
}

// Upsert replaces the role with the same id in place, or appends it.
func (c *UserConfig) Upsert(r Role) {
	r.normalizeSets()
	if i := c.indexOf(r.ID); i >= 0 {
		c.CustomRoles[i] = r
		return
	}
	c.CustomRoles = append(c.CustomRoles, r)
}

// RemoveRole drops the role and clears the current selection when it pointed at it.
func (c *UserConfig) RemoveRole(id string) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.CustomRoles = append(c.CustomRoles[:i], c.CustomRoles[i+1:]...)
	if c.CurrentRoleID == id {
		c.CurrentRoleID = ""
	}
	return true
}

func (c UserConfig) IsFavorite(id string) bool {
	return contains(c.FavoriteRoles, id)
}

// AddFavorite reports whether the set changed.
func (c *UserConfig) AddFavorite(id string) bool {
	if contains(c.FavoriteRoles, id) {
		return false
	}
	c.FavoriteRoles = append(c.FavoriteRoles, id)
	return true
}

func (c *UserConfig) RemoveFavorite(id string) bool {
	var changed bool
	c.FavoriteRoles, changed = without(c.FavoriteRoles, id)
	return changed
}

func (c UserConfig) IsMarketInstalled(marketID string) bool {
	return contains(c.InstalledMarketRoles, marketID)
}

func (c *UserConfig) MarkMarketInstalled(marketID string) bool {
	if contains(c.InstalledMarketRoles, marketID) {
		return false
	}
	c.InstalledMarketRoles = append(c.InstalledMarketRoles, marketID)
	return true
}

func contains(set []string, id string) bool {
	for _, s := range set {
		if s == id {
			return true
		}
	}
	return false
}

func without(set []string, id string) ([]string, bool) {
	out := make([]string, 0, len(set))
	for _, s := range set {
		if s != id {
			out = append(out, s)
		}
	}
	return out, len(out) != len(set)
}
