package bot

const (
	documentCaption       = "📄 Cotización SAAVE Arquitectos"
	textChooseOption      = "👆 Por favor elige una de las opciones de la pregunta."
	textOptionUnavailable = "Esta opción ya no está disponible"
	textUnknownCommand    = "Comando no reconocido. Usa /help para ver las opciones."
	textDocumentLimited   = "has solicitado demasiados documentos, intenta de nuevo más tarde"
	textServiceDown       = "el servicio de documentos no está disponible"
	textStorageDown       = "el almacenamiento no está disponible, intenta más tarde"

	actionDocument = "document"
)

const helpText = `🏠 SAAVE Arquitectos

Te acompaño a cotizar el diseño de tu vivienda en pocos pasos:
1. Respondes unas preguntas sobre los espacios que necesitas.
2. Dejas tus datos de contacto.
3. Recibes la propuesta económica y, si quieres, el documento PDF.

Comandos:
/start - comenzar o retomar tu cotización
/cancel - descartar lo respondido y empezar de nuevo
/help - ver esta ayuda`
