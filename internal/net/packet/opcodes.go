package packet

// Opcodes for client build 16042. Wire layout per packet:
// [2B LE length][2B LE flags][2B LE opcode][payload].
// C_ = client→server, S_ = server→client.
const (
	// Encrypted envelope: the body is a cipher-wrapped inner packet that is
	// decrypted with the connection key and redispatched.
	OPCODE_ENCRYPTED uint16 = 0x0077

	// Auth / session
	C_OPCODE_HELLO_AUTH  uint16 = 0x0101
	S_OPCODE_CHALLENGE   uint16 = 0x0102
	C_OPCODE_PROOF       uint16 = 0x0103
	S_OPCODE_PROOF       uint16 = 0x0104
	C_OPCODE_HELLO_WORLD uint16 = 0x0110
	S_OPCODE_WELCOME     uint16 = 0x0111
	S_OPCODE_AUTH_FAIL   uint16 = 0x0112

	// Character management
	C_OPCODE_CHARACTER_LIST   uint16 = 0x0120
	S_OPCODE_CHARACTER_LIST   uint16 = 0x0121
	C_OPCODE_CHARACTER_CREATE uint16 = 0x0122
	S_OPCODE_CHARACTER_CREATE uint16 = 0x0123
	C_OPCODE_CHARACTER_DELETE uint16 = 0x0124
	C_OPCODE_CHARACTER_SELECT uint16 = 0x0125

	// World entry
	C_OPCODE_ENTERED_WORLD  uint16 = 0x0130
	S_OPCODE_WORLD_ENTER    uint16 = 0x0131
	S_OPCODE_ENTITY_CREATE  uint16 = 0x0132
	S_OPCODE_ENTITY_DESTROY uint16 = 0x0133

	// Movement
	C_OPCODE_MOVEMENT uint16 = 0x0140
	S_OPCODE_MOVEMENT uint16 = 0x0141

	// Combat / spells
	C_OPCODE_CAST_SPELL  uint16 = 0x0150
	C_OPCODE_CANCEL_CAST uint16 = 0x0151
	S_OPCODE_SPELL_GO    uint16 = 0x0152
	C_OPCODE_SET_TARGET  uint16 = 0x0153

	// Buffs
	S_OPCODE_BUFF_APPLY  uint16 = 0x0160
	S_OPCODE_BUFF_REMOVE uint16 = 0x0161

	// Dialog & NPC interaction
	C_OPCODE_NPC_INTERACT uint16 = 0x0170
	S_OPCODE_DIALOG_START uint16 = 0x0171
	S_OPCODE_CHAT_NPC     uint16 = 0x0172

	// Chat
	C_OPCODE_CHAT uint16 = 0x0180
	S_OPCODE_CHAT uint16 = 0x0181

	// Keep-alive
	C_OPCODE_KEEP_ALIVE uint16 = 0x0190
)

// AuthFail reasons carried by S_OPCODE_AUTH_FAIL.
const (
	AuthFailBadBuild       byte = 1
	AuthFailUnknownAccount byte = 2
	AuthFailBadProof       byte = 3
	AuthFailSessionExpired byte = 4
	AuthFailBanned         byte = 5
	AuthFailDuplicate      byte = 6
)

// BuffRemoveReason values carried by S_OPCODE_BUFF_REMOVE.
const (
	BuffRemoveDispel    byte = 0
	BuffRemoveExpired   byte = 1
	BuffRemoveCancelled byte = 2
)

// Chat channels carried by C_OPCODE_CHAT / S_OPCODE_CHAT.
const (
	ChatLocal   byte = 0
	ChatSay     byte = 1
	ChatYell    byte = 2
	ChatZone    byte = 3
	ChatGlobal  byte = 4
	ChatWhisper byte = 5
)
