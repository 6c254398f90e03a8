package models

// Role defines the access role of a user. Doctors are the only role.
type Role string

const RoleDoctor Role = "doctor"

func (r Role) Valid() bool { return r == RoleDoctor }
