package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"course:view",
		"assignment:view",
		"submission:create",
		"submission:view-own",
		"dashboard:student",
	},
	"professor": {
		"course:create",
		"course:view",
		"course:enroll",
		"assignment:*",
		"rubric:*",
		"submission:view-all",
		"dashboard:professor",
	},
	"admin": {
		"*", // everything
	},
}
