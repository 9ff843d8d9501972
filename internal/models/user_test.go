package models

import "testing"

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"admin role", RoleAdmin, true},
		{"manager role", RoleManager, true},
		{"operator role", RoleOperator, true},
		{"viewer role", RoleViewer, true},
		{"invalid role", "invalid", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestUser_HasPermission(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	manager := &User{Role: RoleManager}
	operator := &User{Role: RoleOperator}
	viewer := &User{Role: RoleViewer}
	unknown := &User{Role: "guest"}

	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		{"admin can manage users", admin, ActionManageUsers, true},
		{"admin can view analytics", admin, ActionViewAnalytics, true},

		{"manager cannot manage users", manager, ActionManageUsers, false},
		{"manager can manage routes", manager, ActionManageRoutes, true},
		{"manager can view analytics", manager, ActionViewAnalytics, true},

		{"operator can manage routes", operator, ActionManageRoutes, true},
		{"operator can manage inventory", operator, ActionManageInventory, true},
		{"operator cannot view analytics", operator, ActionViewAnalytics, false},
		{"operator cannot manage users", operator, ActionManageUsers, false},

		{"viewer can view routes", viewer, ActionViewRoutes, true},
		{"viewer can view inventory", viewer, ActionViewInventory, true},
		{"viewer can view analytics", viewer, ActionViewAnalytics, true},
		{"viewer cannot manage routes", viewer, ActionManageRoutes, false},
		{"viewer cannot manage inventory", viewer, ActionManageInventory, false},

		{"unknown role has nothing", unknown, ActionViewRoutes, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.user.HasPermission(tt.action)
			if result != tt.expected {
				t.Errorf("User with role %s HasPermission(%s) = %v, want %v",
					tt.user.Role, tt.action, result, tt.expected)
			}
		})
	}
}
