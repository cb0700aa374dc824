package mcpserver

// ContentContract tells assistant clients how Synergy content is shaped.
const ContentContract = `# Synergy Content Contract

Everything lives inside a workspace. Call list_workspaces first and pass the
workspace id to every other tool.

## Tasks

- A task has a title, an optional description, a status and an optional due date.
- Status must be one of the kanban statuses returned with list_tasks. Leave it
  empty to use the first status.
- Due dates are YYYY-MM-DD or RFC 3339 timestamps.
- Creating a task may run the workspace's automations, which can create more
  tasks or notes. create_task reports everything that was created.

## Notes

- A note has a title and a Markdown body.
- Images saved in the workspace are referenced as ` + "`" + `![alt](image:<image id>)` + "`" + `.
- Notes you create are owned by the system user and are filed at the root.

## Example note body

` + "```" + `markdown
# Weekly review

- [x] Ship the importer
- [ ] Plan next sprint

![Whiteboard](image:img_0b6c)
` + "```" + `
`
