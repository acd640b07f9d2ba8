package discord

import (
	"github.com/bwmarrin/discordgo"
)

// isAdmin reports whether the message author may run admin commands.
// Guild owners and members holding the Administrator permission always
// qualify; beyond that, any role listed in ADMIN_ROLE_IDS counts.
// Admin commands only exist in guild channels, so a nil Member (DM)
// never qualifies.
func (r *Router) isAdmin(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if m.GuildID == "" || m.Member == nil {
		return false
	}

	guild, err := s.State.Guild(m.GuildID)
	if err != nil || guild == nil {
		guild, err = s.Guild(m.GuildID)
		if err != nil || guild == nil {
			return false
		}
	}
	if guild.OwnerID == m.Author.ID {
		return true
	}

	roleByID := make(map[string]*discordgo.Role, len(guild.Roles))
	for _, role := range guild.Roles {
		roleByID[role.ID] = role
	}
	for _, roleID := range m.Member.Roles {
		if role, ok := roleByID[roleID]; ok && role.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
		for _, allowed := range r.adminRoleIDs {
			if roleID == allowed {
				return true
			}
		}
	}
	return false
}
