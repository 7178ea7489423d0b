package chat

import "saave-bot/internal/quote"

type Step string

const (
	StepGreeting      Step = "greeting"
	StepQuestions     Step = "questions"
	StepRoomQuestions Step = "room_questions"
	StepExtraSpaces   Step = "espacios_selection"
	StepMaterialGrade Step = "material_line_selection"
	StepUserName      Step = "user_data_name"
	StepUserPhone     Step = "user_data_phone"
	StepUserEmail     Step = "user_data_email"
	StepFinal         Step = "final"
)

// AcceptsText reports whether the step collects free text instead of options.
func (s Step) AcceptsText() bool {
	switch s {
	case StepUserName, StepUserPhone, StepUserEmail:
		return true
	}
	return false
}

const (
	ActionDownload = "descargar"
	ActionSummary  = "resumen"
	ActionRestart  = "new_quotation"
)

const (
	textGreeting = "¡Hola! 👋 Soy tu asistente virtual de SAAVE Arquitectos y estoy aquí para ayudarte a obtener una cotización detallada de tu proyecto arquitectónico.\n\n" +
		"🏗️ ¿Qué vamos a hacer?\n" +
		"• Recopilaré información sobre tu proyecto\n" +
		"• Calcularé las áreas y espacios necesarios\n" +
		"• Te proporcionaré un presupuesto detallado con desglose completo\n" +
		"• Generaré un documento profesional con tu cotización\n\n" +
		"Comencemos con las preguntas técnicas sobre tu proyecto:"

	textSpaceAdded      = "Agregado: %s"
	textAnotherSpace    = "¿Deseas agregar otro espacio adicional?"
	textOnlyBasicSpaces = "Perfecto, tu proyecto incluirá solo los espacios básicos."
	textGradeSelected   = "Seleccionaste: %s"
	textConfigured      = "¡Excelente! Has completado la configuración de tu proyecto. Ahora necesito algunos datos para personalizar tu cotización."
	textAskName         = "Por favor, dime tu nombre completo:"
	textAskPhone        = "Por favor, dime tu número de teléfono:"
	textAskEmail        = "Por favor, dime tu correo electrónico:"
	textGenerating      = "¡Perfecto! Ahora genero tu cotización personalizada con desglose detallado..."
	textAskDownload     = "¿Te gustaría descargar el documento oficial de cotización?"

	TextDocumentReady  = "✅ ¡Perfecto! Tu cotización en PDF ha sido generada y descargada exitosamente."
	TextDocumentFailed = "❌ Error al generar el documento: %s"
	TextPersistFailed  = "⚠️ No pudimos guardar tu cotización: %s"
)

var finishOption = quote.Option{Letter: "Z", Label: "✅ Ya no quiero más espacios - Continuar", Value: quote.ValueFinish}

var finalOptions = []quote.Option{
	{Letter: "A", Label: "📄 Sí, descargar documento PDF", Value: ActionDownload},
	{Letter: "B", Label: "📋 Solo conservar resumen", Value: ActionSummary},
	{Letter: "C", Label: "🔄 Iniciar nueva cotización", Value: ActionRestart},
}
